package models

// SystemdServiceStatus contains the status information for the terminal's unit.
type SystemdServiceStatus struct {
	Service string `json:"service" example:"restream.service" doc:"Unit name"`
	Status  string `json:"status" example:"active" doc:"Unit state (active, inactive, failed, etc.)"`
}

type SystemdServiceStatusResponse struct {
	Body SystemdServiceStatus
}

// SystemdServiceAction contains the result of a unit action.
type SystemdServiceAction struct {
	Service string `json:"service" example:"restream.service" doc:"Unit name"`
	Action  string `json:"action" example:"restart" doc:"Action performed"`
	Success bool   `json:"success" example:"true" doc:"Whether the action succeeded"`
}

type SystemdServiceActionResponse struct {
	Body SystemdServiceAction
}
