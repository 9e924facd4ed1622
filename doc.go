// Package jamb is the composition root for the jamb toolkit.
//
// It connects the geometric domain logic with the storage adapters
// using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// Jamb treats a building plan as a transactional database of elements:
// walls, openings (doors and windows), and dimensions, each stored as
// one YAML file in a category directory. On top of that store it runs
// pure-geometry analyses: resolving an opening's orientation frame,
// finding the perpendicular walls around it, and planning chains of
// dimensions from opening edges to neighbouring wall faces.
//
// Features:
//
//   - **Hexagonal Architecture**: Geometry and domain logic are isolated from persistence details.
//   - **Transactional Safe**: Dimension batches commit atomically; a failed run leaves no partial state.
//   - **Versioned Plans**: Every mutation is recorded as a revision with a change reason.
//   - **Typed Retrieval**: Generic wrapper (`NewTypedRepository[T]`) for type-safe element access.
//   - **Default Adapter (FS + Git)**: Out-of-the-box YAML files with git-backed history.
//   - **Extensible**: Other backends plug in via `core.Repository`.
//
// Usage:
//
//	// Open a plan with functional options
//	svc, err := jamb.New("./plan",
//		jamb.WithAutoInit(true),
//		jamb.WithLogger(logger),
//	)
//
//	// Save a wall
//	el, _ := core.ToElement("walls/north", wall)
//	err = svc.SaveElement(ctx, el)
package jamb
