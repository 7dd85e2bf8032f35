package ampzip

import (
	"fmt"
	"time"
)

// FlatLayout partitions a flat target into Count filler files of PerFile
// units plus one file of Remainder units when Remainder is non-zero.
type FlatLayout struct {
	Count     int64
	PerFile   int64
	Remainder int64
}

// Total returns the decompressed size of the layout in units
func (l FlatLayout) Total() int64 {
	return l.Count*l.PerFile + l.Remainder
}

// Entries returns the number of filler entries the layout writes
func (l FlatLayout) Entries() int64 {
	if l.Remainder > 0 {
		return l.Count + 1
	}
	return l.Count
}

// PlanFlat keeps each filler near fileTarget units, so a target never
// becomes one giant file or millions of tiny ones. At least one file is
// always written.
func PlanFlat(target, fileTarget int64) FlatLayout {
	if fileTarget < 1 {
		fileTarget = 1
	}
	count := max(1, target/fileTarget)
	perFile := target / count
	return FlatLayout{
		Count:     count,
		PerFile:   perFile,
		Remainder: target - perFile*count,
	}
}

// BuildFlat writes a single container at output holding the payload and
// filler entries summing to exactly target units.
func (b *Builder) BuildFlat(target int64, output string, payload PayloadSet) (res *Result, err error) {
	start := time.Now()
	cfg := b.snapshot()
	if err := checkTarget(&cfg, target); err != nil {
		return nil, err
	}
	if err := b.checkPayload(payload); err != nil {
		return nil, err
	}

	layout := PlanFlat(target, cfg.FileTarget)
	log := b.logger()
	log.Info("building flat archive",
		"target", target,
		"files", layout.Count,
		"per_file", layout.PerFile,
		"remainder", layout.Remainder,
		"output", output)

	ws, err := b.openWorkspace(&cfg, output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := ws.release(); rerr != nil && err == nil {
			res, err = nil, rerr
		}
	}()

	c, err := b.createContainer(ws, &cfg, "archive"+ContainerExtension(cfg.Format, cfg.Algorithm))
	if err != nil {
		return nil, err
	}
	if err := b.writeFlat(c, ws, &cfg, layout, payload); err != nil {
		c.abort()
		return nil, err
	}
	if err := c.Close(); err != nil {
		return nil, err
	}

	size, err := ws.commit(c.source, output)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Mode:           ModeFlat,
		Output:         output,
		Target:         target,
		ActualSize:     layout.Total(),
		Unit:           cfg.Unit,
		FillerEntries:  layout.Entries(),
		CompressedSize: size,
		Duration:       time.Since(start),
	}
	log.Info("flat archive complete",
		"output", output,
		"compressed_bytes", size,
		"actual", res.ActualSize,
		"duration", res.Duration)
	return res, nil
}

// writeFlat injects the payload, then the filler entries. One on-disk
// filler backs every full-size entry.
func (b *Builder) writeFlat(c Container, ws *workspace, cfg *Config, layout FlatLayout, payload PayloadSet) error {
	if err := b.injectPayload(c, ws, payload); err != nil {
		return err
	}

	filler, err := b.generateFiller(ws, cfg, "filler.txt", layout.PerFile)
	if err != nil {
		return err
	}
	for i := int64(0); i < layout.Count; i++ {
		e := filler
		e.Name = fmt.Sprintf("filler%d.txt", i)
		if err := b.addEntry(c, e); err != nil {
			return err
		}
	}
	if err := ws.remove(filler.Source); err != nil {
		return err
	}

	if layout.Remainder == 0 {
		return nil
	}
	rest, err := b.generateFiller(ws, cfg, fmt.Sprintf("filler%d.txt", layout.Count), layout.Remainder)
	if err != nil {
		return err
	}
	if err := b.addEntry(c, rest); err != nil {
		return err
	}
	return ws.remove(rest.Source)
}
