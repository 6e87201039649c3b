package packet

// Client → server requests (responses use the S_ opcode with the same name).
const (
	C_OPCODE_GET_PLAYER_TOKEN  uint16 = 101
	S_OPCODE_GET_PLAYER_TOKEN  uint16 = 102
	C_OPCODE_PLAYER_LOGIN      uint16 = 103
	S_OPCODE_PLAYER_LOGIN      uint16 = 104
	C_OPCODE_ENTER_SCENE_DONE  uint16 = 105
	S_OPCODE_ENTER_SCENE_DONE  uint16 = 106
	C_OPCODE_JOIN_PLAYER_SCENE uint16 = 107
	S_OPCODE_JOIN_PLAYER_SCENE uint16 = 108
	C_OPCODE_PING              uint16 = 109
	S_OPCODE_PING              uint16 = 110
)

// Notifications sent by clients and relayed to peers.
const (
	OPCODE_EVT_CREATE_GADGET  uint16 = 201
	OPCODE_EVT_DESTROY_GADGET uint16 = 202
	OPCODE_ENTITY_MOVE        uint16 = 203
	OPCODE_ENTITY_DIE         uint16 = 204
)

// Server → client notifications.
const (
	S_OPCODE_PLAYER_DATA             uint16 = 301
	S_OPCODE_PLAYER_ENTER_SCENE      uint16 = 302
	S_OPCODE_SCENE_ENTITY_APPEAR     uint16 = 303
	S_OPCODE_SCENE_ENTITY_DISAPPEAR  uint16 = 304
	S_OPCODE_ENTITY_AUTHORITY_CHANGE uint16 = 305
	S_OPCODE_SCENE_TEAM_UPDATE       uint16 = 306
	S_OPCODE_UNION_CMD               uint16 = 307
)

// Request descriptors.
var (
	GetPlayerToken = NewRequest("GetPlayerToken", C_OPCODE_GET_PLAYER_TOKEN, S_OPCODE_GET_PLAYER_TOKEN,
		WithReqState(StateWaitToken, false))
	PlayerLogin = NewRequest("PlayerLogin", C_OPCODE_PLAYER_LOGIN, S_OPCODE_PLAYER_LOGIN,
		WithReqState(StateWaitLogin, false))
	EnterSceneDone = NewRequest("EnterSceneDone", C_OPCODE_ENTER_SCENE_DONE, S_OPCODE_ENTER_SCENE_DONE,
		WithReqState(StateEnterScene, true))
	JoinPlayerScene = NewRequest("JoinPlayerScene", C_OPCODE_JOIN_PLAYER_SCENE, S_OPCODE_JOIN_PLAYER_SCENE,
		WithReqState(StatePostLogin, true))
	Ping = NewRequest("Ping", C_OPCODE_PING, S_OPCODE_PING,
		WithReqState(StateNone, true))
)

// Forwarded notification descriptors (client → server → peers).
var (
	EvtCreateGadget  = NewNotify("EvtCreateGadget", OPCODE_EVT_CREATE_GADGET, WithNotifyState(StateInGame, true))
	EvtDestroyGadget = NewNotify("EvtDestroyGadget", OPCODE_EVT_DESTROY_GADGET, WithNotifyState(StateInGame, true))
	EntityMove       = NewNotify("EntityMove", OPCODE_ENTITY_MOVE, WithNotifyState(StateInGame, true))
	EntityDie        = NewNotify("EntityDie", OPCODE_ENTITY_DIE, WithNotifyState(StateInGame, true))
)

// Server notification descriptors.
var (
	PlayerData            = NewNotify("PlayerData", S_OPCODE_PLAYER_DATA, WithNotifyState(StatePostLogin, true))
	PlayerEnterScene      = NewNotify("PlayerEnterScene", S_OPCODE_PLAYER_ENTER_SCENE, WithNotifyState(StatePostLogin, true))
	SceneEntityAppear     = NewNotify("SceneEntityAppear", S_OPCODE_SCENE_ENTITY_APPEAR, WithNotifyState(StateEnterScene, true))
	SceneEntityDisappear  = NewNotify("SceneEntityDisappear", S_OPCODE_SCENE_ENTITY_DISAPPEAR, WithNotifyState(StateEnterScene, true))
	EntityAuthorityChange = NewNotify("EntityAuthorityChange", S_OPCODE_ENTITY_AUTHORITY_CHANGE, WithNotifyState(StateEnterScene, true))
	SceneTeamUpdate       = NewNotify("SceneTeamUpdate", S_OPCODE_SCENE_TEAM_UPDATE, WithNotifyState(StatePostLogin, true))
	UnionCmd              = NewNotify("UnionCmd", S_OPCODE_UNION_CMD, WithNotifyState(StateInGame, true))
)
