package ws

// Client -> server events.
const (
	JoinRoom  = "join-room"
	LeaveRoom = "leave-room"

	DrawStart   = "draw-start"
	DrawMove    = "draw-move"
	DrawEnd     = "draw-end"
	ShapeUpdate = "shape-update"
	ClearBoard  = "clear-board"

	CursorMove  = "cursor-move"
	CursorLeave = "cursor-leave"

	MessageSend = "message-send"

	CallUser   = "call-user"
	AnswerCall = "answer-call"
)

// Server -> client events.
const (
	Session    = "session"
	UserJoined = "user-joined"
	UserLeft   = "user-left"
	RoomUsers  = "room-users"
	BoardState = "board-state"

	MessageReceive = "message-receive"
)
