package hostecs

// EntityWriter is the narrow, optional write surface a World may implement
// to support the inspector's small enumerated entity-action set (§4.6). It
// is deliberately not part of World itself: a world used only for read-side
// inspection need not support any mutation at all, and the inspector must
// treat its absence as "action not supported" rather than a panic.
type EntityWriter interface {
	// SetEntitySurname writes text to the entity identified by uuid's
	// inspector-owned persistent component and its nameplate component.
	SetEntitySurname(uuid string, text string) error

	// TeleportPlayersTo enqueues a teleport component onto every connected
	// player's handle, moving them to target.
	TeleportPlayersTo(target Vector3) error
}
