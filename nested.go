package ampzip

import (
	"fmt"
	"time"
)

// BuildNested writes a container of containers at output. Level 1 holds
// one leaf filler; every following level holds depth copies of the level
// below, each compressed again. The payload is injected into the last
// level only. The reported size is the balancer's estimate, which may
// overshoot target.
//
// Targets below Config.NestedThreshold are built in flat mode instead.
func (b *Builder) BuildNested(target int64, output string, payload PayloadSet) (res *Result, err error) {
	start := time.Now()
	cfg := b.snapshot()
	if err := checkTarget(&cfg, target); err != nil {
		return nil, err
	}

	log := b.logger()
	if target < cfg.NestedThreshold {
		log.Warn("target too small for nesting, using flat mode",
			"target", target,
			"threshold", cfg.NestedThreshold)
		res, err := b.BuildFlat(target, output, payload)
		if err != nil {
			return nil, err
		}
		res.Routed = true
		return res, nil
	}

	if err := b.checkPayload(payload); err != nil {
		return nil, err
	}
	layout, err := Balance(target)
	if err != nil {
		return nil, err
	}
	log.Warn("using nested mode, actual size may differ from target",
		"target", target,
		"actual", layout.Actual,
		"depth", layout.Depth,
		"leaf", layout.LeafSize)

	ws, err := b.openWorkspace(&cfg, output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := ws.release(); rerr != nil && err == nil {
			res, err = nil, rerr
		}
	}()

	ext := ContainerExtension(cfg.Format, cfg.Algorithm)
	levelName := func(i int64) string { return fmt.Sprintf("%d%s", i, ext) }

	seed, err := b.buildSeed(ws, &cfg, levelName(1), layout.LeafSize)
	if err != nil {
		return nil, err
	}

	prev := seed
	for i := int64(1); i <= layout.Depth; i++ {
		var extra PayloadSet
		if i == layout.Depth {
			extra = payload
		}
		next, err := b.growLevel(ws, &cfg, prev, levelName(i+1), i, layout.Depth, extra)
		if err != nil {
			return nil, err
		}
		log.Debug("built level", "level", i+1, "copies", layout.Depth)
		prev = next
	}

	size, err := ws.commit(prev, output)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Mode:           ModeNested,
		Output:         output,
		Target:         target,
		ActualSize:     layout.Actual,
		Unit:           cfg.Unit,
		Depth:          layout.Depth,
		LeafSize:       layout.LeafSize,
		FillerEntries:  selfPow(layout.Depth),
		CompressedSize: size,
		Duration:       time.Since(start),
	}
	log.Info("nested archive complete",
		"output", output,
		"compressed_bytes", size,
		"actual", res.ActualSize,
		"duration", res.Duration)
	return res, nil
}

// buildSeed writes the level 1 container around a single leaf filler and
// returns its workspace path
func (b *Builder) buildSeed(ws *workspace, cfg *Config, name string, leaf int64) (string, error) {
	filler, err := b.generateFiller(ws, cfg, "filler.txt", leaf)
	if err != nil {
		return "", err
	}
	c, err := b.createContainer(ws, cfg, name)
	if err != nil {
		return "", err
	}
	if err := b.addEntry(c, filler); err != nil {
		c.abort()
		return "", err
	}
	if err := c.Close(); err != nil {
		return "", err
	}
	if err := ws.remove(filler.Source); err != nil {
		return "", err
	}
	return c.source, nil
}

// growLevel writes copies entries of the container at prev into a new
// container, deletes prev once every copy is written, injects payload and
// returns the new container's path. Only prev and the new level exist on
// disk at any time.
func (b *Builder) growLevel(ws *workspace, cfg *Config, prev, name string, level, copies int64, payload PayloadSet) (string, error) {
	info, err := b.fsys.Stat(prev)
	if err != nil {
		return "", fmt.Errorf("%w: stat level %d: %w", ErrIO, level, err)
	}

	c, err := b.createContainer(ws, cfg, name)
	if err != nil {
		return "", err
	}

	ext := ContainerExtension(cfg.Format, cfg.Algorithm)
	for j := int64(0); j < copies; j++ {
		e := Entry{
			Kind:   EntryNested,
			Name:   fmt.Sprintf("%d-%d%s", level, j, ext),
			Source: prev,
			Size:   info.Size(),
		}
		if err := b.addEntry(c, e); err != nil {
			c.abort()
			return "", err
		}
	}
	if err := ws.remove(prev); err != nil {
		c.abort()
		return "", err
	}

	if err := b.injectPayload(c, ws, payload); err != nil {
		c.abort()
		return "", err
	}
	if err := c.Close(); err != nil {
		return "", err
	}
	return c.source, nil
}
