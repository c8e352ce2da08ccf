package event

import (
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

type projectStore interface {
	UpsertProject(project *model.ProjectModel) error
}

type milestoneCreator interface {
	CreateMilestones(milestones []model.ProjectMilestoneModel) error
}

// ProjectProcessor 根据项目快照维护项目读模型
type ProjectProcessor struct {
	projects   projectStore
	milestones milestoneCreator
}

// NewProjectProcessor 创建项目事件处理器
func NewProjectProcessor(projects projectStore, milestones milestoneCreator) *ProjectProcessor {
	return &ProjectProcessor{
		projects:   projects,
		milestones: milestones,
	}
}

// EventTypes 携带项目快照的事件
func (p *ProjectProcessor) EventTypes() []Type {
	return []Type{
		TypeProjectCreated,
		TypeContributeSucceeded,
		TypeProjectApproved,
		TypeMilestoneApproved,
		TypeMilestoneRejected,
		TypeProjectFundsWithdrawn,
		TypeProjectLockedFundsRefunded,
	}
}

// Process 处理项目相关事件
func (p *ProjectProcessor) Process(ev Event) error {
	if ev.Project == nil {
		logger.Warn("Event %s (%s) carries no project snapshot", ev.ID, ev.Type)
		return nil
	}

	project := model.NewProjectModel(*ev.Project)
	if err := p.projects.UpsertProject(&project); err != nil {
		return err
	}

	if ev.Type == TypeProjectCreated {
		if err := p.milestones.CreateMilestones(model.NewProjectMilestoneModels(*ev.Project)); err != nil {
			return err
		}
		logger.Info("Processed project creation event for project %d", ev.ProjectKey)
	}
	return nil
}
