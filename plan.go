package ampzip

// Plan describes a build without touching the disk
type Plan struct {
	Mode   Mode
	Target int64
	// ActualSize is the decompressed size the build will report, in units
	ActualSize int64
	// Routed is set when a nested request would be served in flat mode
	Routed bool

	Flat   FlatLayout
	Nested BalanceResult

	// Containers written during the build, including intermediate levels
	Containers int64
	// Filler and nested-copy entries written across all containers
	Entries int64
}

// Plan computes the layout Build would use for mode and target
func (b *Builder) Plan(mode Mode, target int64) (*Plan, error) {
	cfg := b.snapshot()
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := checkTarget(&cfg, target); err != nil {
		return nil, err
	}

	if mode == ModeNested && target >= cfg.NestedThreshold {
		layout, err := Balance(target)
		if err != nil {
			return nil, err
		}
		return &Plan{
			Mode:       ModeNested,
			Target:     target,
			ActualSize: layout.Actual,
			Nested:     layout,
			Containers: layout.Depth + 1,
			Entries:    1 + mulSat(layout.Depth, layout.Depth),
		}, nil
	}

	layout := PlanFlat(target, cfg.FileTarget)
	return &Plan{
		Mode:       ModeFlat,
		Target:     target,
		ActualSize: layout.Total(),
		Routed:     mode == ModeNested,
		Flat:       layout,
		Containers: 1,
		Entries:    layout.Entries(),
	}, nil
}
