package mapmarshal

import (
	"fmt"

	"go.uber.org/zap"
)

func (w *walker) marshalObject(entity any, ref, path string) (*Mapping, error) {
	if isNil(entity) {
		return nil, &Error{Code: CodeInvalidInput, Ref: ref, Path: pathOrRoot(path), Message: "got nil entity for marshalling"}
	}
	if err := w.enter(ref, path); err != nil {
		return nil, err
	}
	defer w.leave()

	entry, err := w.m.registry.entry(ref)
	if err != nil {
		return nil, withContext(err, ref, pathOrRoot(path))
	}

	out := NewMapping(len(entry.Properties) + 1)
	for _, p := range entry.Properties {
		raw, err := w.m.accessor.Get(entity, p.Name)
		if err != nil {
			return nil, errAccessor("get", ref, p.Name, path, err)
		}
		at := joinPath(path, p.OutputName)
		v, err := w.marshalValue(raw, p.Type, at)
		if err != nil {
			return nil, withContext(err, ref, at)
		}
		if v == nil {
			continue
		}
		out.Set(p.OutputName, v)
	}

	d := entry.Discriminator
	if d == nil {
		return out, nil
	}
	tag, err := w.m.accessor.Get(entity, d.Property)
	if err != nil {
		return nil, errAccessor("get", ref, d.Property, path, err)
	}
	// The tag is written even when it selects nothing, and before the
	// subtype merge so a deeper level can never replace it.
	out.Set(d.OutputName, tag)
	sub, ok := subtypeRef(d, tag)
	if !ok {
		w.log.Debug("discriminator tag selects no subtype",
			zap.String("ref", ref), zap.String("tag", fmt.Sprint(tag)))
		return out, nil
	}
	w.log.Debug("marshalling subtype",
		zap.String("ref", ref), zap.String("tag", fmt.Sprint(tag)), zap.String("subtype", sub))
	specific, err := w.marshalObject(entity, sub, path)
	if err != nil {
		return nil, err
	}
	out.Merge(specific)
	return out, nil
}
