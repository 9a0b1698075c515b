// Package providers loads every provider implementation into the registry.
package providers

import (
	// Provider implementations register themselves on import.
	_ "github.com/agentstation/gamemeta/internal/sources/providers/gamespot"
	_ "github.com/agentstation/gamemeta/internal/sources/providers/hltb"
	_ "github.com/agentstation/gamemeta/internal/sources/providers/igdb"
	_ "github.com/agentstation/gamemeta/internal/sources/providers/metacritic"
	_ "github.com/agentstation/gamemeta/internal/sources/providers/rawg"
)
