package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/xavierca1/leadflow/internal/entity"
)

const TaskFollowUp = "leads.followup"

func NewFollowUpTask(job entity.FollowUpJob) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUp, data), nil
}

func ParseFollowUpPayload(task *asynq.Task) (entity.FollowUpJob, error) {
	var job entity.FollowUpJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return entity.FollowUpJob{}, err
	}
	return job, nil
}
