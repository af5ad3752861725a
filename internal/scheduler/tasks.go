package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDailyMaintenance = "notification.maintenance.daily"

type DailyMaintenancePayload struct {
	// Source names what requested the run: "cron" or "hook".
	Source string `json:"source"`
	// Day is the calendar day the run belongs to, as 2006-01-02.
	Day string `json:"day"`
}

func NewDailyMaintenanceTask(payload DailyMaintenancePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyMaintenance, data), nil
}

func ParseDailyMaintenancePayload(task *asynq.Task) (DailyMaintenancePayload, error) {
	var payload DailyMaintenancePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DailyMaintenancePayload{}, err
	}
	return payload, nil
}
