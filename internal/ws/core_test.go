package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stelliform/sketchsphere/internal/domain"
	"github.com/stelliform/sketchsphere/internal/registry"
)

const testRoom = "ABC123"

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	core := NewCore(registry.New(), zap.NewNop().Sugar())
	go core.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := NewClient(conn, uuid.NewString(), 64)
		core.Register() <- client

		go client.WriteMessage(core)
		go client.ReadMessage(core)
	}))
	t.Cleanup(srv.Close)

	return srv
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn

	sessionID string
}

func dialTestServer(t *testing.T, srv *httptest.Server) *testConn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tc := &testConn{t: t, conn: conn}

	// First frame is always the session announcement.
	env := tc.next()
	require.Equal(t, Session, env.Type)
	var p SessionPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.NotEmpty(t, p.SessionID)
	tc.sessionID = p.SessionID

	return tc
}

func (tc *testConn) send(eventType string, data any) {
	tc.t.Helper()
	require.NoError(tc.t, tc.conn.WriteJSON(WSMessage{
		Type:   eventType,
		RoomID: testRoom,
		Data:   data,
	}))
}

func (tc *testConn) next() Envelope {
	tc.t.Helper()
	require.NoError(tc.t, tc.conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var env Envelope
	require.NoError(tc.t, tc.conn.ReadJSON(&env))
	return env
}

// expect reads the next frame and asserts its type, returning the decoded
// payload into out when out is non-nil.
func (tc *testConn) expect(eventType string, out any) Envelope {
	tc.t.Helper()

	env := tc.next()
	require.Equal(tc.t, eventType, env.Type, "unexpected event")
	if out != nil {
		require.NoError(tc.t, json.Unmarshal(env.Data, out))
	}
	return env
}

// expectSilence asserts no frame arrives within the window.
func (tc *testConn) expectSilence(d time.Duration) {
	tc.t.Helper()
	require.NoError(tc.t, tc.conn.SetReadDeadline(time.Now().Add(d)))

	var env Envelope
	err := tc.conn.ReadJSON(&env)
	require.Error(tc.t, err, "expected no frame, got %s", env.Type)
	netErr, ok := err.(interface{ Timeout() bool })
	require.True(tc.t, ok && netErr.Timeout(), "expected read timeout, got %v", err)
}

func (tc *testConn) join(name string) {
	tc.t.Helper()
	tc.send(JoinRoom, JoinRoomPayload{User: domain.User{Name: name}})
}

func TestJoinAnnouncesPresenceAndSnapshot(t *testing.T) {
	srv := startTestServer(t)

	alice := dialTestServer(t, srv)
	alice.join("alice")

	var joined UserJoinedPayload
	alice.expect(UserJoined, &joined)
	require.Equal(t, "alice", joined.User.Name)
	require.Equal(t, alice.sessionID, joined.User.SessionID)

	var users RoomUsersPayload
	alice.expect(RoomUsers, &users)
	require.Len(t, users.Users, 1)

	var board BoardStatePayload
	alice.expect(BoardState, &board)
	require.Empty(t, board.Elements)

	// Second member: alice sees the join and the refreshed list, bob gets the
	// presence pair plus his own snapshot.
	bob := dialTestServer(t, srv)
	bob.join("bob")

	alice.expect(UserJoined, &joined)
	require.Equal(t, "bob", joined.User.Name)
	alice.expect(RoomUsers, &users)
	require.Len(t, users.Users, 2)
	require.Equal(t, "alice", users.Users[0].Name, "join order must be preserved")

	bob.expect(UserJoined, nil)
	bob.expect(RoomUsers, nil)
	bob.expect(BoardState, nil)
}

func TestDrawingEventsExcludeSender(t *testing.T) {
	srv := startTestServer(t)

	alice := dialTestServer(t, srv)
	bob := dialTestServer(t, srv)
	alice.join("alice")
	drainJoin(t, alice, 1)
	bob.join("bob")
	drainJoin(t, bob, 1)
	alice.expect(UserJoined, nil)
	alice.expect(RoomUsers, nil)

	alice.send(DrawStart, DrawStartPayload{Element: domain.Element{
		ID: "el-1", Type: domain.KindFreehand, Color: "#000", StrokeWidth: 2,
	}})
	for i := 0; i < 2; i++ {
		alice.send(DrawMove, DrawMovePayload{
			ElementID: "el-1",
			Point:     domain.Point{X: float64(i), Y: float64(i * 2)},
		})
	}
	alice.send(DrawEnd, DrawEndPayload{ElementID: "el-1"})

	var started DrawStartPayload
	env := bob.expect(DrawStart, &started)
	require.Equal(t, "el-1", started.Element.ID)
	require.Equal(t, alice.sessionID, env.Origin, "events must carry the origin session")
	require.Equal(t, alice.sessionID, started.Element.OriginSessionID)

	var move DrawMovePayload
	bob.expect(DrawMove, &move)
	require.Equal(t, domain.Point{X: 0, Y: 0}, move.Point)
	bob.expect(DrawMove, &move)
	require.Equal(t, domain.Point{X: 1, Y: 2}, move.Point)
	bob.expect(DrawEnd, nil)

	// The sender gets no echo of its own drawing events.
	alice.expectSilence(300 * time.Millisecond)
}

func TestLateJoinerReceivesAccumulatedBoard(t *testing.T) {
	srv := startTestServer(t)

	alice := dialTestServer(t, srv)
	observer := dialTestServer(t, srv)
	alice.join("alice")
	drainJoin(t, alice, 1)
	observer.join("observer")
	drainJoin(t, observer, 2)
	alice.expect(UserJoined, nil)
	alice.expect(RoomUsers, nil)

	alice.send(DrawStart, DrawStartPayload{Element: domain.Element{
		ID: "el-1", Type: domain.KindFreehand, Points: []domain.Point{{X: 0, Y: 0}},
	}})
	for i := 1; i <= 5; i++ {
		alice.send(DrawMove, DrawMovePayload{
			ElementID: "el-1",
			Point:     domain.Point{X: float64(i), Y: float64(i)},
		})
	}
	alice.send(DrawEnd, DrawEndPayload{ElementID: "el-1"})

	// Once the observer has seen the whole stroke the core has dispatched it,
	// so a join queued after this point sees the finished board.
	observer.expect(DrawStart, nil)
	for i := 0; i < 5; i++ {
		observer.expect(DrawMove, nil)
	}
	observer.expect(DrawEnd, nil)

	carol := dialTestServer(t, srv)
	carol.join("carol")
	carol.expect(UserJoined, nil)
	carol.expect(RoomUsers, nil)

	var board BoardStatePayload
	carol.expect(BoardState, &board)
	require.Len(t, board.Elements, 1)
	require.Equal(t, "el-1", board.Elements[0].ID)
	require.Len(t, board.Elements[0].Points, 6, "snapshot must include appended points")
}

func TestClearBoardReachesEveryMember(t *testing.T) {
	srv := startTestServer(t)

	alice := dialTestServer(t, srv)
	bob := dialTestServer(t, srv)
	alice.join("alice")
	drainJoin(t, alice, 1)
	bob.join("bob")
	drainJoin(t, bob, 1)
	alice.expect(UserJoined, nil)
	alice.expect(RoomUsers, nil)

	bob.send(ClearBoard, nil)

	// Unlike drawing events, the sender receives the clear too.
	env := alice.expect(ClearBoard, nil)
	require.Equal(t, bob.sessionID, env.Origin)
	bob.expect(ClearBoard, nil)
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	srv := startTestServer(t)

	alice := dialTestServer(t, srv)
	bob := dialTestServer(t, srv)
	alice.join("alice")
	drainJoin(t, alice, 1)
	bob.join("bob")
	drainJoin(t, bob, 1)
	alice.expect(UserJoined, nil)
	alice.expect(RoomUsers, nil)

	require.NoError(t, bob.conn.Close())

	var left UserLeftPayload
	alice.expect(UserLeft, &left)
	require.Equal(t, bob.sessionID, left.SessionID)
	require.Equal(t, "bob", left.Name)

	var users RoomUsersPayload
	alice.expect(RoomUsers, &users)
	require.Len(t, users.Users, 1)
	require.Equal(t, "alice", users.Users[0].Name)
}

// drainJoin consumes the three frames a joiner always receives: its own
// user-joined, the member list, and the board snapshot.
func drainJoin(t *testing.T, tc *testConn, wantMembers int) {
	t.Helper()

	tc.expect(UserJoined, nil)
	var users RoomUsersPayload
	tc.expect(RoomUsers, &users)
	require.Len(t, users.Users, wantMembers)
	tc.expect(BoardState, nil)
}
