package module

import "rollcall/internal/services/monitor/domain"

// Ports defines the monitor module ports
type Ports struct {
	Monitor domain.MonitorPort
	Status  domain.StatusPort
}
