package config

import "github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"

// whitelistedKeys are the only top-level keys a CONFIG_UPDATE request may
// touch (§6); every debug.* gate is addressed with a "debug." prefix.
// Unknown keys are logged and skipped rather than rejecting the whole
// request (§4.6, §7).
var whitelistedKeys = map[string]bool{
	"enabled": true, "updateIntervalTicks": true,
	"includeNPCs": true, "includePlayers": true, "includeItems": true,
	"maxCachedEntities": true, "websocketEnabled": true, "websocketMaxClients": true,
	"packetLogEnabled": true, "packetLogExcluded": true,
	"debug.entityLifecycle": true, "debug.positionTracking": true, "debug.onDemandRefresh": true,
	"debug.alarmInspection": true, "debug.timerInspection": true, "debug.instructionInspection": true,
	"debug.lazyExpansion": true, "debug.assetBrowser": true, "debug.patchManagement": true, "debug.entityActions": true,
}

// Apply applies a CONFIG_UPDATE request's key/value pairs to s, skipping
// and logging any key not on the whitelist, then persists and returns the
// resulting configuration. Persistence failure is logged but the in-memory
// change still takes effect (§7's internal-failure policy).
func (s *Store) Apply(updates map[string]any) Config {
	log := telemetry.WithComponent("config")

	s.mu.Lock()
	cur := s.cur
	for key, value := range updates {
		if !whitelistedKeys[key] {
			log.Warn().Str("key", key).Msg("ignoring unknown config key")
			continue
		}
		applyKey(&cur, key, value)
	}
	s.cur = cur
	err := s.saveLocked()
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("failed to persist config, in-memory change still applied")
	}
	return cur
}

func applyKey(c *Config, key string, value any) {
	switch key {
	case "enabled":
		c.Enabled, _ = value.(bool)
	case "updateIntervalTicks":
		if n, ok := asInt(value); ok {
			c.UpdateIntervalTicks = n
		}
	case "includeNPCs":
		c.IncludeNPCs, _ = value.(bool)
	case "includePlayers":
		c.IncludePlayers, _ = value.(bool)
	case "includeItems":
		c.IncludeItems, _ = value.(bool)
	case "maxCachedEntities":
		if n, ok := asInt(value); ok {
			c.MaxCachedEntities = n
		}
	case "websocketEnabled":
		c.WebsocketEnabled, _ = value.(bool)
	case "websocketMaxClients":
		if n, ok := asInt(value); ok {
			c.WebsocketMaxClients = n
		}
	case "packetLogEnabled":
		c.PacketLogEnabled, _ = value.(bool)
	case "packetLogExcluded":
		if items, ok := value.([]any); ok {
			excluded := make([]string, 0, len(items))
			for _, item := range items {
				if s, ok := item.(string); ok {
					excluded = append(excluded, s)
				}
			}
			c.PacketLogExcluded = excluded
		}
	case "debug.entityLifecycle":
		c.Debug.EntityLifecycle, _ = value.(bool)
	case "debug.positionTracking":
		c.Debug.PositionTracking, _ = value.(bool)
	case "debug.onDemandRefresh":
		c.Debug.OnDemandRefresh, _ = value.(bool)
	case "debug.alarmInspection":
		c.Debug.AlarmInspection, _ = value.(bool)
	case "debug.timerInspection":
		c.Debug.TimerInspection, _ = value.(bool)
	case "debug.instructionInspection":
		c.Debug.InstructionInspection, _ = value.(bool)
	case "debug.lazyExpansion":
		c.Debug.LazyExpansion, _ = value.(bool)
	case "debug.assetBrowser":
		c.Debug.AssetBrowser, _ = value.(bool)
	case "debug.patchManagement":
		c.Debug.PatchManagement, _ = value.(bool)
	case "debug.entityActions":
		c.Debug.EntityActions, _ = value.(bool)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
