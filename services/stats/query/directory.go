// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

// =============================================================================
// Directory Statements
// =============================================================================

// The directory statements list canonical names for fuzzy resolution.
// Fixed text, no parameters; each returns a single "name" column.

// PlayerNames lists every player name in the graph.
func PlayerNames() Statement {
	statementsTotal.WithLabelValues("directory_players").Inc()
	return Statement{
		Text: "MATCH (p:Player)\nRETURN p.name AS name\nORDER BY name\n",
	}
}

// OppositionNames lists every opposition club the fixtures record.
func OppositionNames() Statement {
	statementsTotal.WithLabelValues("directory_opposition").Inc()
	return Statement{
		Text: "MATCH (f:Fixture)\nWHERE f.opposition IS NOT NULL\n" +
			"RETURN DISTINCT f.opposition AS name\nORDER BY name\n",
	}
}

// LeagueNames lists every league competition the fixtures record.
func LeagueNames() Statement {
	statementsTotal.WithLabelValues("directory_leagues").Inc()
	return Statement{
		Text: "MATCH (f:Fixture)\nWHERE f.competitionType = 'league'\n" +
			"RETURN DISTINCT f.competition AS name\nORDER BY name\n",
	}
}
