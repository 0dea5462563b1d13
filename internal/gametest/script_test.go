package gametest

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript_PlaysStepsAndRecords(t *testing.T) {
	s := NewScript(
		Expect(wire.KindJoin),
		Send(`{"type":"start","opponentId":"bob"}`),
		Expect(wire.KindMove),
		CloseNormal(),
	)
	defer s.Close()

	c := dial(t, s.Endpoint())
	send(t, c, wire.Join{PlayerID: "p1"})
	assert.Equal(t, wire.Start{OpponentID: "bob"}, recv(t, c))
	send(t, c, wire.Move{X: 1, Y: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))

	require.True(t, s.Wait(2*time.Second))
	assert.Empty(t, s.Errors())
	assert.Equal(t, []string{
		`{"type":"join","playerId":"p1"}`,
		`{"type":"move","x":1,"y":2}`,
	}, s.Received())
}

func TestScript_FlagsWrongFrame(t *testing.T) {
	s := NewScript(Expect(wire.KindJoin))
	defer s.Close()

	c := dial(t, s.Endpoint())
	send(t, c, wire.Move{X: 0, Y: 0})

	require.True(t, s.Wait(2*time.Second))
	require.Len(t, s.Errors(), 1)
	assert.Contains(t, s.Errors()[0].Error(), "expected join, got move")
	_ = c.Close(websocket.StatusNormalClosure, "")
}

func TestHealthz(t *testing.T) {
	s := NewScript()
	defer s.Close()

	url := "http" + strings.TrimPrefix(strings.TrimSuffix(s.Endpoint(), GamePath), "ws") + "/healthz"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
