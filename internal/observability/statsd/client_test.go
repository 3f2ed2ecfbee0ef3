package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Format(t *testing.T) {
	c := &Client{prefix: "tom_portal", tags: map[string]string{"env": "prod", "service": "portal"}}

	tests := []struct {
		name   string
		metric string
		tags   map[string]string
		want   string
	}{
		{"no call tags", "auth.refresh", nil, "tom_portal.auth.refresh:1|c|#env:prod,service:portal"},
		{"call tags override", "auth.refresh", map[string]string{" env ": " stage ", "result": "shared"}, "tom_portal.auth.refresh:1|c|#env:stage,result:shared,service:portal"},
		{"resource path", "tomapi/targets/bulk", nil, "tom_portal.tomapi_targets_bulk:1|c|#env:prod,service:portal"},
		{"blank tag key dropped", "a..b", map[string]string{"": "x"}, "tom_portal.a.b:1|c|#env:prod,service:portal"},
		{"empty name", "  ", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.format(tt.metric, "1", "c", tt.tags))
		})
	}
}

func TestClient_FormatWithoutPrefixOrTags(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "tomapi.request.duration:12.5|ms", c.format("tomapi.request.duration", "12.5", "ms", nil))
}

func TestClient_DisabledDropsMetrics(t *testing.T) {
	c, err := NewClient(context.Background(), Config{Address: " "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("auth.refresh", 1, nil)
	assert.NoError(t, c.Close())

	var nilClient *Client
	nilClient.Timing("auth.refresh.duration", time.Second, nil)
	assert.False(t, nilClient.Enabled())
}

func TestClient_WritesDatagrams(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(context.Background(), Config{Address: pc.LocalAddr().String(), Prefix: ".portal."})
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Enabled())

	c.Timing("auth.refresh.duration", 1500*time.Microsecond, map[string]string{"result": "success"})

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "portal.auth.refresh.duration:1.5|ms|#result:success", string(buf[:n]))

	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	c.Count("after.close", 1, nil)
}
