package ecs

// Match filters entities down to those owning every component in keys,
// preserving input order. Every key must be registered, even when entities
// is empty.
func Match(s *Store, entities []Entity, keys ...ComponentKey) ([]Entity, error) {
	cols, err := s.columnsFor(keys)
	if err != nil {
		return nil, err
	}
	matched := make([]Entity, 0, len(entities))
next:
	for _, e := range entities {
		for _, c := range cols {
			if !c.has(e) {
				continue next
			}
		}
		matched = append(matched, e)
	}
	return matched, nil
}

// Each2 visits every entity in entities that owns both A and B, handing out
// checked views. Entities missing either component are skipped.
func Each2[A, B any](s *Store, entities []Entity, fn func(Entity, View[A], View[B])) error {
	sa, err := arrayOf[A](s)
	if err != nil {
		return err
	}
	sb, err := arrayOf[B](s)
	if err != nil {
		return err
	}
	for _, e := range entities {
		a, ok := sa.view(e)
		if !ok {
			continue
		}
		b, ok := sb.view(e)
		if !ok {
			continue
		}
		fn(e, a, b)
	}
	return nil
}
