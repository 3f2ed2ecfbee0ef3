// Package mocks provides gomock implementations of the portal's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	issuer := mocks.NewMockTokenIssuer(ctrl)
//	issuer.EXPECT().RefreshToken(gomock.Any(), "refresh-0").Return(ports.AccessGrant{AccessToken: "a"}, nil)
package mocks

// Generate mocks for the auth ports:
// ProfileFetcher, SessionStore, SocialProvider, TokenIssuer
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/tomobs/tom-portal/internal/ports ProfileFetcher,SessionStore,SocialProvider,TokenIssuer
