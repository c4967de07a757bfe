package inspector

import (
	"encoding/json"
	"errors"

	"github.com/lait-kelomins/laits-entity-inspector/internal/assets"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/transport"
)

// Dispatch implements transport.Dispatcher: it decodes a request frame's
// data payload, routes it to the matching Core operation, and builds the
// response frame or ERROR message. Reflective/expansion failures never
// reach here as Go errors — every Core method already reduces them to the
// "empty answer" or wire-string shapes §4.6/§7 document.
func (c *Core) Dispatch(session *transport.Session, msgType model.MessageType, data any) (*model.Frame, string) {
	raw, _ := data.(json.RawMessage)

	switch msgType {
	case model.MsgRequestSnapshot:
		return respond(model.MsgInit, c.Snapshot())

	case model.MsgRequestEntity, model.MsgRequestEntityDetail:
		return c.dispatchEntityDetail(raw, msgType)

	case model.MsgRequestExpand:
		return c.dispatchExpandEntity(raw, msgType)

	case model.MsgRequestPacketExpand:
		return c.dispatchExpandPacket(raw, msgType)

	case model.MsgConfigUpdate:
		var updates map[string]any
		if errMsg := decodeInto(raw, msgType, &updates); errMsg != "" {
			return nil, errMsg
		}
		c.ConfigUpdate(updates)
		return nil, ""

	case model.MsgSetPaused:
		var req struct {
			Paused bool `json:"paused"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		if req.Paused {
			c.Pause()
		} else {
			c.Resume()
		}
		return nil, ""

	case model.MsgRequestEntityList:
		var req struct {
			Filter string `json:"filter"`
			Search string `json:"search"`
			Limit  int    `json:"limit"`
			Offset int    `json:"offset"`
		}
		_ = decodeLenient(raw, &req)
		return respond(model.MsgEntityList, c.ListEntities(req.Filter, req.Search, req.Limit, req.Offset))

	case model.MsgRequestEntityTimers:
		id, errMsg := decodeEntityID(raw, msgType)
		if errMsg != "" {
			return nil, errMsg
		}
		timers, disabled, found := c.Timers(id)
		if disabled {
			return respond(model.MsgEntityTimers, []model.TimerInfo{})
		}
		if !found {
			return nil, errEntityNotFound
		}
		return respond(model.MsgEntityTimers, timers)

	case model.MsgRequestEntityAlarms:
		id, errMsg := decodeEntityID(raw, msgType)
		if errMsg != "" {
			return nil, errMsg
		}
		alarms, disabled, found := c.Alarms(id)
		if disabled {
			return respond(model.MsgEntityAlarms, []model.AlarmInfo{})
		}
		if !found {
			return nil, errEntityNotFound
		}
		return respond(model.MsgEntityAlarms, alarms)

	case model.MsgRequestEntityInstructions:
		id, errMsg := decodeEntityID(raw, msgType)
		if errMsg != "" {
			return nil, errMsg
		}
		tree, disabled, found := c.Instructions(id)
		if disabled {
			return respond(model.MsgEntityInstructions, model.InstructionTree{})
		}
		if !found {
			return nil, errEntityNotFound
		}
		return respond(model.MsgEntityInstructions, tree)

	case model.MsgRequestFindByTimer:
		var req struct {
			State string `json:"state"`
			Limit int    `json:"limit"`
		}
		_ = decodeLenient(raw, &req)
		items, disabled := c.FindByTimerState(model.TimerState(req.State), req.Limit)
		if disabled {
			return respond(model.MsgFindResults, []model.EntityListItem{})
		}
		return respond(model.MsgFindResults, items)

	case model.MsgRequestFindByAlarm:
		var req struct {
			Name  string `json:"name"`
			State string `json:"state"`
			Limit int    `json:"limit"`
		}
		_ = decodeLenient(raw, &req)
		items, disabled := c.FindByAlarm(req.Name, model.AlarmState(req.State), req.Limit)
		if disabled {
			return respond(model.MsgFindResults, []model.EntityListItem{})
		}
		return respond(model.MsgFindResults, items)

	case model.MsgRequestAssetCategories:
		cats, err := c.AssetCategories()
		return assetResponse(model.MsgAssetCategories, []model.AssetCategory{}, cats, err)

	case model.MsgRequestAssets:
		var req struct {
			Category string `json:"category"`
		}
		_ = decodeLenient(raw, &req)
		list, err := c.AssetList(req.Category)
		return assetResponse(model.MsgAssetList, []model.AssetSummary{}, list, err)

	case model.MsgRequestAssetDetail:
		var req struct {
			Path string `json:"path"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		detail, err := c.AssetDetail(req.Path)
		if errors.Is(err, assets.ErrAssetNotFound) {
			return nil, errAssetNotFound
		}
		return assetResponse(model.MsgAssetDetail, model.AssetDetail{}, detail, err)

	case model.MsgRequestAssetExpand:
		var req struct {
			Path      string `json:"path"`
			FieldPath string `json:"fieldPath"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		value, err := c.AssetExpand(req.Path, req.FieldPath)
		if errors.Is(err, assets.ErrAssetNotFound) {
			return nil, errAssetNotFound
		}
		return assetResponse(model.MsgAssetExpandResponse, nil, value, err)

	case model.MsgRequestSearchAssets:
		var req struct {
			Query string `json:"query"`
		}
		_ = decodeLenient(raw, &req)
		results, err := c.SearchAssets(req.Query)
		return assetResponse(model.MsgSearchResults, []model.AssetSummary{}, results, err)

	case model.MsgRequestTestWildcard:
		var req struct {
			Pattern string `json:"pattern"`
		}
		_ = decodeLenient(raw, &req)
		matches, err := c.TestWildcard(req.Pattern)
		return assetResponse(model.MsgWildcardMatches, []string{}, matches, err)

	case model.MsgRequestGeneratePatch:
		var req struct {
			BaseAssetPath string `json:"baseAssetPath"`
			Overlay       any    `json:"overlay"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		patch, err := c.GeneratePatch(req.BaseAssetPath, req.Overlay)
		if errors.Is(err, assets.ErrDisabled) {
			return nil, gateDisabled("patchManagement")
		}
		if err != nil {
			return nil, err.Error()
		}
		return respond(model.MsgPatchGenerated, patch)

	case model.MsgRequestSaveDraft:
		var req struct {
			Patch model.Patch `json:"patch"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		draft, err := c.SaveDraft(req.Patch)
		if errors.Is(err, assets.ErrDisabled) {
			return nil, gateDisabled("patchManagement")
		}
		if err != nil {
			return nil, err.Error()
		}
		return respond(model.MsgDraftSaved, draft)

	case model.MsgRequestPublishPatch:
		var req struct {
			Filename string `json:"filename"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		err := c.PublishPatch(req.Filename)
		switch {
		case errors.Is(err, assets.ErrDisabled):
			return nil, gateDisabled("patchManagement")
		case errors.Is(err, assets.ErrDraftNotFound):
			return nil, "Draft not found"
		case err != nil:
			return nil, err.Error()
		}
		return respond(model.MsgPatchPublished, nil)

	case model.MsgRequestListDrafts:
		drafts, err := c.ListDrafts()
		return assetResponse(model.MsgDraftsList, []model.Draft{}, drafts, err)

	case model.MsgSetEntitySurname:
		var req struct {
			EntityID int64  `json:"entityId"`
			Text     string `json:"text"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		if errMsg := c.SetEntitySurname(req.EntityID, req.Text); errMsg != "" {
			return nil, errMsg
		}
		return respond(model.MsgActionResult, nil)

	case model.MsgTeleportToEntity:
		var req struct {
			EntityID int64 `json:"entityId"`
		}
		if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
			return nil, errMsg
		}
		if errMsg := c.TeleportToEntity(req.EntityID); errMsg != "" {
			return nil, errMsg
		}
		return respond(model.MsgActionResult, nil)

	default:
		return nil, transport.UnknownMessageType(string(msgType))
	}
}

func (c *Core) dispatchEntityDetail(raw json.RawMessage, msgType model.MessageType) (*model.Frame, string) {
	id, errMsg := decodeEntityID(raw, msgType)
	if errMsg != "" {
		return nil, errMsg
	}
	snap, ok := c.EntityDetail(id)
	if !ok {
		return nil, errEntityNotFound
	}
	return respond(model.MsgEntityDetail, snap)
}

func (c *Core) dispatchExpandEntity(raw json.RawMessage, msgType model.MessageType) (*model.Frame, string) {
	var req struct {
		EntityID int64  `json:"entityId"`
		Path     string `json:"path"`
	}
	if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
		return nil, errMsg
	}
	if req.Path == "" {
		return nil, "Missing entityId or path"
	}
	value, reason := c.ExpandEntity(req.EntityID, req.Path)
	if reason != "" {
		return nil, failedToExpand(reason)
	}
	return respond(model.MsgExpandResponse, value)
}

func (c *Core) dispatchExpandPacket(raw json.RawMessage, msgType model.MessageType) (*model.Frame, string) {
	var req struct {
		PacketID int64  `json:"packetId"`
		Path     string `json:"path"`
	}
	if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
		return nil, errMsg
	}
	if req.Path == "" {
		return nil, "Missing entityId or path"
	}
	value, reason := c.ExpandPacket(req.PacketID, req.Path)
	if reason != "" {
		return nil, failedToExpand(reason)
	}
	return respond(model.MsgPacketExpandResponse, value)
}

func decodeEntityID(raw json.RawMessage, msgType model.MessageType) (int64, string) {
	var req struct {
		EntityID int64 `json:"entityId"`
	}
	if errMsg := decodeInto(raw, msgType, &req); errMsg != "" {
		return 0, errMsg
	}
	return req.EntityID, ""
}

// decodeInto requires a non-empty, well-formed data payload, returning the
// exact §7 malformed-request strings on failure.
func decodeInto(raw json.RawMessage, msgType model.MessageType, v any) string {
	if len(raw) == 0 {
		return transport.MissingDataFor(string(msgType))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return transport.ErrInvalidMessageFormat
	}
	return ""
}

// decodeLenient is used by requests whose every field has a usable zero
// value (filters, pagination, search strings): a missing or empty data
// object is not an error, it just means "no filter".
func decodeLenient(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func respond(msgType model.MessageType, data any) (*model.Frame, string) {
	return &model.Frame{Type: msgType, Data: data, Timestamp: nowMilli()}, ""
}

// assetResponse maps an assets.Wrapper call's (value, error) result to a
// response frame: ErrDisabled yields the gate's empty answer (this request
// family has a natural empty list/map/nil shape, unlike the action-like
// RPCs that return the gated message as their error string), any other
// error propagates verbatim as the ERROR frame's message.
func assetResponse(successType model.MessageType, emptyData any, data any, err error) (*model.Frame, string) {
	if errors.Is(err, assets.ErrDisabled) {
		return respond(successType, emptyData)
	}
	if err != nil {
		return nil, err.Error()
	}
	return respond(successType, data)
}
