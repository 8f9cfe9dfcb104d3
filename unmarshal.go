package mapmarshal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/mapmarshal/i18n"
)

// asMapping accepts the generic mapping forms Unmarshal understands.
func asMapping(data any) (*Mapping, bool) {
	switch t := data.(type) {
	case *Mapping:
		if t == nil {
			return nil, false
		}
		return t, true
	case map[string]any:
		if t == nil {
			return nil, false
		}
		return MappingFromMap(t), true
	}
	return nil, false
}

func (w *walker) unmarshalObject(data any, ref, path string) (any, error) {
	in, ok := asMapping(data)
	if !ok {
		return nil, &Error{Code: CodeInvalidInput, Ref: ref, Path: pathOrRoot(path), Message: fmt.Sprintf("got %T for unmarshalling, expected a mapping", data)}
	}
	entity, unknown, err := w.unmarshalLevel(in, ref, path)
	if err != nil {
		return nil, err
	}
	for _, k := range unknown {
		v, _ := in.Get(k)
		w.collectUnknown(ref, path, k, v)
	}
	return entity, nil
}

// unmarshalLevel applies one entry of a discriminator chain to in. It returns
// the entity and the keys that neither this entry nor any more specific one
// declares.
func (w *walker) unmarshalLevel(in *Mapping, ref, path string) (any, []string, error) {
	if err := w.enter(ref, path); err != nil {
		return nil, nil, err
	}
	defer w.leave()

	entry, err := w.m.registry.entry(ref)
	if err != nil {
		return nil, nil, withContext(err, ref, pathOrRoot(path))
	}

	var (
		entity     any
		tag        any
		hasTag     bool
		descended  bool
		subUnknown map[string]struct{}
	)
	d := entry.Discriminator
	if d != nil {
		if raw, ok := in.Get(d.OutputName); ok && !isNil(raw) {
			tag, hasTag = raw, true
		}
	}
	if hasTag {
		if sub, ok := subtypeRef(d, tag); ok {
			w.log.Debug("unmarshalling subtype",
				zap.String("ref", ref), zap.String("tag", fmt.Sprint(tag)), zap.String("subtype", sub))
			var keys []string
			entity, keys, err = w.unmarshalLevel(in, sub, path)
			if err != nil {
				return nil, nil, err
			}
			descended = true
			subUnknown = make(map[string]struct{}, len(keys))
			for _, k := range keys {
				subUnknown[k] = struct{}{}
			}
		}
	}

	// consumed holds output names bound through the constructor.
	consumed := make(map[string]struct{}, len(entry.ConstructorArgs))
	if !descended {
		args := make([]any, 0, len(entry.ConstructorArgs))
		for _, name := range entry.ConstructorArgs {
			p, _ := entry.Property(name)
			consumed[p.OutputName] = struct{}{}
			raw, _ := in.Get(p.OutputName)
			at := joinPath(path, p.OutputName)
			v, err := w.unmarshalValue(raw, p.Type, at)
			if err != nil {
				return nil, nil, withContext(err, ref, at)
			}
			args = append(args, v)
		}
		entity, err = w.m.accessor.Construct(entry.TypeID, args)
		if err != nil {
			return nil, nil, &Error{
				Code:    CodeConstruction,
				Ref:     ref,
				Path:    pathOrRoot(path),
				Message: i18n.T(CodeConstruction, map[string]string{"type": entry.TypeID}),
				Cause:   err,
			}
		}
	}

	// Re-applied at every level of the chain, on the most specific entity.
	if hasTag {
		if err := w.m.accessor.Set(entity, d.Property, tag); err != nil {
			return nil, nil, errAccessor("set", ref, d.Property, path, err)
		}
	}

	index := make(map[string]Property, len(entry.Properties))
	for _, p := range entry.Properties {
		if _, ok := consumed[p.OutputName]; ok {
			continue
		}
		index[p.OutputName] = p
	}

	var (
		unknown []string
		setErr  error
	)
	in.Range(func(k string, v any) bool {
		p, ok := index[k]
		if !ok {
			if _, ok := consumed[k]; ok {
				return true
			}
			if d != nil && k == d.OutputName {
				return true
			}
			if _, subMissed := subUnknown[k]; descended && !subMissed {
				return true
			}
			unknown = append(unknown, k)
			return true
		}
		at := joinPath(path, k)
		val, err := w.unmarshalValue(v, p.Type, at)
		if err != nil {
			setErr = withContext(err, ref, at)
			return false
		}
		if err := w.m.accessor.Set(entity, p.Name, val); err != nil {
			setErr = errAccessor("set", ref, p.Name, path, err)
			return false
		}
		return true
	})
	if setErr != nil {
		return nil, nil, setErr
	}
	return entity, unknown, nil
}
