package driver

// Stage identifies one pipeline stage for progress reporting.
type Stage int

const (
	StageWalk Stage = iota
	StageParse
	StageObserve
	StageCollate
	StageResolve
	StagePatch
)

func (s Stage) String() string {
	switch s {
	case StageWalk:
		return "walk"
	case StageParse:
		return "parse"
	case StageObserve:
		return "observe"
	case StageCollate:
		return "collate"
	case StageResolve:
		return "resolve"
	case StagePatch:
		return "patch"
	default:
		return "unknown"
	}
}

// StageEvent describes progress within a stage. Path is the file just
// finished where that makes sense, otherwise empty.
type StageEvent struct {
	Stage Stage
	Path  string
	Done  int
	Total int
}

// StageObserver receives progress events from Annotate. Вызывается из
// рабочих горутин, реализация обязана быть потокобезопасной.
type StageObserver func(StageEvent)

func (o StageObserver) emit(ev StageEvent) {
	if o != nil {
		o(ev)
	}
}
