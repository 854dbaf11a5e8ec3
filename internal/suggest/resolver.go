package suggest

import (
	"errors"
	"time"

	"vesna/internal/deadline"
	"vesna/internal/typ"
	"vesna/internal/typenv"
	"vesna/internal/unify"
)

// Stats accumulates per-shard resolution counters. Шарды держат каждый свой
// экземпляр; драйвер складывает их после завершения фазы.
type Stats struct {
	Buckets   int
	Suggested int
	Expired   int
	Unclean   int // слияния окружений с перезаписанными привязками
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	s.Buckets += other.Buckets
	s.Suggested += other.Suggested
	s.Expired += other.Expired
	s.Unclean += other.Unclean
}

// Resolver turns buckets into suggestions. Budget is the per-location wall
// clock budget; zero disables the guard. ElementClass overrides the base
// class the heuristic search tries first; пустая строка значит Elem.
// A Resolver is not safe for concurrent use: every worker owns one.
type Resolver struct {
	Budget       time.Duration
	ElementClass string
	Stats        Stats
}

// ResolveBucket runs the full per-location algorithm: environment fold,
// candidate normalization, unification fold, heuristic supertype search,
// finalization. ok=false means no suggestion; это штатный исход, не ошибка.
func (r *Resolver) ResolveBucket(b *Bucket) (Suggestion, bool) {
	r.Stats.Buckets++
	if len(b.Obs) == 0 {
		return Suggestion{}, false
	}

	var guard *deadline.Guard
	if r.Budget > 0 {
		guard = deadline.Start(r.Budget)
	}

	sug, ok := r.resolveUnder(b, guard)
	if guard.Expired() {
		r.Stats.Expired++
		return Suggestion{}, false
	}
	if ok {
		r.Stats.Suggested++
	}
	return sug, ok
}

func (r *Resolver) resolveUnder(b *Bucket, guard *deadline.Guard) (Suggestion, bool) {
	// Шаг 1: свёртка окружений. Первый аргумент Merge побеждает, значит при
	// коллизии выигрывает позже записанное наблюдение.
	var env *typenv.Env
	candidates := make([]typ.Type, 0, len(b.Obs))
	for _, o := range b.Obs {
		merged, clean := typenv.Merge(o.Env, env)
		if !clean {
			r.Stats.Unclean++
		}
		env = merged
		candidates = append(candidates, o.Type)
	}
	if env == nil {
		env = typenv.New(nil)
	}

	// Шаг 2: this-зависимые кандидаты заменяются своей верхней границей.
	for i, c := range candidates {
		if dep, ok := c.(*typ.ThisDep); ok {
			candidates[i] = dep.Under
		}
	}

	// Шаг 3: свёртка унификации с Unknown в качестве затравки.
	winner, err := r.unifyFold(env, candidates, guard)
	if err != nil {
		if errors.Is(err, deadline.ErrExpired) {
			return Suggestion{}, false
		}
		// Шаг 4: эвристический поиск супер-типа.
		winner = r.guessFold(env, candidates, guard)
	}
	if typ.IsUnknown(winner) {
		return Suggestion{}, false
	}

	// Шаг 5: финализация. Отказ печати означает "нет предложения".
	resolved, err := unify.Resolve(env, winner, guard)
	if err != nil {
		return Suggestion{}, false
	}
	text, err := typ.Print(resolved)
	if err != nil {
		return Suggestion{}, false
	}
	return Suggestion{
		Line:  b.Key.Line,
		Kind:  b.Key.Kind,
		Param: b.Key.Param,
		Type:  resolved,
		Text:  text,
	}, true
}

func (r *Resolver) unifyFold(env *typenv.Env, candidates []typ.Type, guard *deadline.Guard) (typ.Type, error) {
	var acc typ.Type = typ.Unk
	for _, c := range candidates {
		u, err := unify.Unify(env, acc, c, guard)
		if err != nil {
			return nil, err
		}
		acc = u
	}
	return acc, nil
}

// guessFold checks guesses in priority order; candidates themselves close the
// list. Возвращает Unknown, если ни одна догадка не подошла.
func (r *Resolver) guessFold(env *typenv.Env, candidates []typ.Type, guard *deadline.Guard) typ.Type {
	base := r.ElementClass
	if base == "" {
		base = typ.ElemBase
	}
	elem := &typ.Class{Name: base}
	guesses := make([]typ.Type, 0, 4+len(candidates))
	guesses = append(guesses,
		elem,
		typ.AsyncOf(elem),
		typ.NullableOf(elem),
		typ.AsyncOf(typ.NullableOf(elem)),
	)
	guesses = append(guesses, candidates...)

	for _, guess := range guesses {
		if r.allSubtypes(env, candidates, guess, guard) {
			return guess
		}
		if guard.Expired() {
			break
		}
	}
	return typ.Unk
}

func (r *Resolver) allSubtypes(env *typenv.Env, candidates []typ.Type, guess typ.Type, guard *deadline.Guard) bool {
	for _, c := range candidates {
		if err := unify.Subtype(env, c, guess, guard); err != nil {
			return false
		}
	}
	return true
}

// ResolveAll runs ResolveBucket over a shard of buckets and groups the
// produced suggestions per file. Просроченные и пустые локации просто
// отсутствуют в результате.
func (r *Resolver) ResolveAll(buckets []*Bucket) PatchSet {
	out := make(PatchSet)
	for _, b := range buckets {
		sug, ok := r.ResolveBucket(b)
		if !ok {
			continue
		}
		out[b.Key.Path] = append(out[b.Key.Path], sug)
	}
	return out
}
