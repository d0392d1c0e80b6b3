package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	stop := make(chan struct{})
	go hub.Run(stop)

	e := echo.New()
	e.GET("/ws/:type/:id", func(c echo.Context) error {
		return HandleWebSocket(c, hub, c.Param("id"), c.Param("type"))
	})
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		close(stop)
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var welcome Notification
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, NotificationTypeConnected, welcome.Type)
	return conn
}

func TestHubBroadcastsToUserType(t *testing.T) {
	hub, srv := startHub(t)
	admin := dial(t, srv, "/ws/admin/a1")
	member := dial(t, srv, "/ws/member/m1")

	hub.BroadcastToType("admin", Notification{Type: NotificationTypeContactSubmitted, Message: "New contact message"})

	var got Notification
	_ = admin.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, admin.ReadJSON(&got))
	assert.Equal(t, NotificationTypeContactSubmitted, got.Type)

	_ = member.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	assert.Error(t, member.ReadJSON(&got))
}

func TestHubSendToUser(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "/ws/member/m1")

	hub.SendToUser("m1", Notification{Type: NotificationTypeWalletTransfer, Message: "Transfer successful"})

	var got Notification
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Transfer successful", got.Message)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "/ws/admin/a1")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
