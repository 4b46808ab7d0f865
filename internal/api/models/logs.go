package models

import "github.com/smazurov/restream/internal/events"

// LogListRequest selects log history.
type LogListRequest struct {
	Since  uint64 `query:"since" doc:"Only return entries with a sequence number above this"`
	Module string `query:"module" doc:"Only return entries of this module"`
}

// LogListData is a page of log history.
type LogListData struct {
	Entries []events.LogEntryEvent `json:"entries" doc:"Log entries, oldest first"`
	LastSeq uint64                 `json:"last_seq" doc:"Sequence number of the newest entry"`
}

type LogListResponse struct {
	Body LogListData
}

// LogLevelsData maps every module to its level.
type LogLevelsData struct {
	Levels map[string]string `json:"levels" doc:"Level per module"`
}

type LogLevelsResponse struct {
	Body LogLevelsData
}

// LogLevelRequest sets the level of one module.
type LogLevelRequest struct {
	Module string `path:"module" example:"broadcast" doc:"Logger module"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
	}
}
