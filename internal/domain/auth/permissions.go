package auth

// UserAdminRoles may list users and change their roles.
func UserAdminRoles() RoleSet { return NewRoleSet(RoleAdmin, RoleFaculty) }

// AnnouncerRoles may publish announcements.
func AnnouncerRoles() RoleSet { return ElevatedRoles() }

// ETLLogRoles may read the data pipeline logs.
func ETLLogRoles() RoleSet { return ElevatedRoles() }

// LulinScheduleRoles may compile the nightly Lulin schedule.
func LulinScheduleRoles() RoleSet { return ElevatedRoles() }
