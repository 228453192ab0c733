package isoflow

// Stage is a named slot in the per-frame pipeline. Systems in one stage
// run in registration order; stages run in the order of defaultStages.
type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: system}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
	}
}
