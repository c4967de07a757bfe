package model

// MessageType is the `type` field of a framed bus message (§6).
type MessageType string

// Server -> Client push types.
const (
	MsgInit             MessageType = "INIT"
	MsgEntitySpawn      MessageType = "ENTITY_SPAWN"
	MsgEntityDespawn    MessageType = "ENTITY_DESPAWN"
	MsgEntityUpdate     MessageType = "ENTITY_UPDATE"
	MsgPositionBatch    MessageType = "POSITION_BATCH"
	MsgPacketLog        MessageType = "PACKET_LOG"
	MsgConfigSync       MessageType = "CONFIG_SYNC"
	MsgTimeSync         MessageType = "TIME_SYNC"
	MsgFeatureInfo      MessageType = "FEATURE_INFO"
	MsgAssetsRefreshed  MessageType = "ASSETS_REFRESHED"
	MsgError            MessageType = "ERROR"
	MsgPong             MessageType = "PONG"
)

// Client -> Server request types.
const (
	MsgRequestSnapshot           MessageType = "REQUEST_SNAPSHOT"
	MsgRequestEntity             MessageType = "REQUEST_ENTITY"
	MsgRequestExpand             MessageType = "REQUEST_EXPAND"
	MsgRequestPacketExpand       MessageType = "REQUEST_PACKET_EXPAND"
	MsgConfigUpdate              MessageType = "CONFIG_UPDATE"
	MsgSetPaused                 MessageType = "SET_PAUSED"
	MsgRequestEntityList         MessageType = "REQUEST_ENTITY_LIST"
	MsgRequestEntityDetail       MessageType = "REQUEST_ENTITY_DETAIL"
	MsgRequestEntityTimers       MessageType = "REQUEST_ENTITY_TIMERS"
	MsgRequestEntityAlarms       MessageType = "REQUEST_ENTITY_ALARMS"
	MsgRequestEntityInstructions MessageType = "REQUEST_ENTITY_INSTRUCTIONS"
	MsgRequestFindByTimer        MessageType = "REQUEST_FIND_BY_TIMER"
	MsgRequestFindByAlarm        MessageType = "REQUEST_FIND_BY_ALARM"
	MsgRequestAssetCategories    MessageType = "REQUEST_ASSET_CATEGORIES"
	MsgRequestAssets             MessageType = "REQUEST_ASSETS"
	MsgRequestAssetDetail        MessageType = "REQUEST_ASSET_DETAIL"
	MsgRequestAssetExpand        MessageType = "REQUEST_ASSET_EXPAND"
	MsgRequestSearchAssets       MessageType = "REQUEST_SEARCH_ASSETS"
	MsgRequestTestWildcard       MessageType = "REQUEST_TEST_WILDCARD"
	MsgRequestGeneratePatch      MessageType = "REQUEST_GENERATE_PATCH"
	MsgRequestSaveDraft          MessageType = "REQUEST_SAVE_DRAFT"
	MsgRequestPublishPatch       MessageType = "REQUEST_PUBLISH_PATCH"
	MsgRequestListDrafts         MessageType = "REQUEST_LIST_DRAFTS"
	MsgSetEntitySurname          MessageType = "SET_ENTITY_SURNAME"
	MsgTeleportToEntity          MessageType = "TELEPORT_TO_ENTITY"
)

// Server -> Client response types.
const (
	MsgExpandResponse       MessageType = "EXPAND_RESPONSE"
	MsgPacketExpandResponse MessageType = "PACKET_EXPAND_RESPONSE"
	MsgAssetCategories      MessageType = "ASSET_CATEGORIES"
	MsgAssetList            MessageType = "ASSET_LIST"
	MsgAssetDetail          MessageType = "ASSET_DETAIL"
	MsgAssetExpandResponse  MessageType = "ASSET_EXPAND_RESPONSE"
	MsgSearchResults        MessageType = "SEARCH_RESULTS"
	MsgWildcardMatches      MessageType = "WILDCARD_MATCHES"
	MsgPatchGenerated       MessageType = "PATCH_GENERATED"
	MsgDraftSaved           MessageType = "DRAFT_SAVED"
	MsgPatchPublished       MessageType = "PATCH_PUBLISHED"
	MsgDraftsList           MessageType = "DRAFTS_LIST"

	// The entity-query responses below aren't named in the bus's documented
	// enumeration alongside the asset/patch response types, but every one of
	// §4.5's query operations needs a wire shape to answer on, so these fill
	// that gap the same way the asset responses do.
	MsgEntityList           MessageType = "ENTITY_LIST"
	MsgEntityDetail         MessageType = "ENTITY_DETAIL"
	MsgEntityTimers         MessageType = "ENTITY_TIMERS"
	MsgEntityAlarms         MessageType = "ENTITY_ALARMS"
	MsgEntityInstructions   MessageType = "ENTITY_INSTRUCTIONS"
	MsgFindResults          MessageType = "FIND_RESULTS"
	MsgActionResult         MessageType = "ACTION_RESULT"
)

// Frame is the envelope every bus message is wrapped in (§6).
type Frame struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorData is the payload of an ERROR frame (§7).
type ErrorData struct {
	Message string `json:"message"`
}

// EntityDespawnData is the payload of an ENTITY_DESPAWN push (§8 S1). The
// uuid is captured at spawn time since the entity's cache entry, and its
// uuid along with it, is already gone by the time the lifecycle-remove
// callback fires.
type EntityDespawnData struct {
	EntityID int64  `json:"entityId"`
	UUID     string `json:"uuid,omitempty"`
}

// EntityUpdateData is the payload of an ENTITY_UPDATE push: the fresh
// snapshot plus the names of components that changed since the previous one
// (invariant 8), so a client may apply a delta or replace wholesale.
type EntityUpdateData struct {
	Snapshot          *EntitySnapshot `json:"snapshot"`
	ChangedComponents []string        `json:"changedComponents"`
}

// TimeSyncData is the payload of a TIME_SYNC push, emitted every 60th
// position batch.
type TimeSyncData struct {
	GameTimeEpochMilli int64   `json:"gameTimeEpochMilli"`
	GameTimeRate       float64 `json:"gameTimeRate"`
}
