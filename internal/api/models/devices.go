package models

import "github.com/smazurov/restream/internal/devices"

type DevicesRequest struct {
	Kind string `query:"kind" enum:"video,audio" required:"false" doc:"Only list devices of this kind"`
}

type DevicesData struct {
	Devices []devices.Device `json:"devices" doc:"Capture devices"`
	Count   int              `json:"count" example:"3" doc:"Number of devices"`
}

type DevicesResponse struct {
	Body DevicesData
}
