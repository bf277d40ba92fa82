package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/shader"
)

// ErrLayoutMismatch is returned when a shader's resource declarations do not fit the fixed
// set layouts.
var ErrLayoutMismatch = errors.New("shader declarations do not match pipeline layout")

// Validate checks the @group/@binding declarations of every stage in set against the fixed
// compute and graphics layouts.
//
// Every declaration must sit at binding 0 of a group that exists in its pipeline, use the
// address space and access mode of that set, and come from a stage the set is visible to.
// The compute stage must declare all of its sets and the graphics stages together must
// declare all of theirs.
//
// Parameters:
//   - set: the loaded shader stages
//
// Returns:
//   - error: an ErrLayoutMismatch wrapping every problem found
func Validate(set *shader.Set) error {
	if set == nil || set.Vertex == nil || set.Fragment == nil || set.Compute == nil {
		return fmt.Errorf("%w: vertex, fragment and compute stages are required", ErrLayoutMismatch)
	}

	var errs []error
	computeSeen := checkStage(set.Compute, ComputeSets, &errs)
	graphicsSeen := checkStage(set.Vertex, GraphicsSets, &errs)
	for g := range checkStage(set.Fragment, GraphicsSets, &errs) {
		graphicsSeen[g] = true
	}

	for g, s := range ComputeSets {
		if !computeSeen[g] {
			errs = append(errs, fmt.Errorf("compute: @group(%d) %s is not declared", g, s))
		}
	}
	for g, s := range GraphicsSets {
		if !graphicsSeen[g] {
			errs = append(errs, fmt.Errorf("graphics: @group(%d) %s is not declared", g, s))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrLayoutMismatch, errors.Join(errs...))
	}
	return nil
}

// checkStage validates one stage against the set order of its pipeline and returns the groups
// it declares.
func checkStage(s shader.Shader, sets []SetLayout, errs *[]error) map[int]bool {
	seen := make(map[int]bool)
	stage := s.Stage()

	for _, d := range s.Declarations() {
		if d.Group < 0 || d.Group >= len(sets) {
			*errs = append(*errs, fmt.Errorf("%s: %s uses a group outside [0,%d)", stage, d.Name, len(sets)))
			continue
		}
		set := sets[d.Group]
		if d.Binding != 0 {
			*errs = append(*errs, fmt.Errorf("%s: %s must be at binding 0 of @group(%d), got %d", stage, d.Name, d.Group, d.Binding))
			continue
		}

		space, access := set.addressSpace()
		if d.AddressSpace != space || d.Access != access {
			*errs = append(*errs, fmt.Errorf("%s: %s is var<%s, %s>, @group(%d) %s needs var<%s, %s>",
				stage, d.Name, d.AddressSpace, d.Access, d.Group, set, space, access))
		}
		if set.Visibility()&stage.Visibility() == 0 {
			*errs = append(*errs, fmt.Errorf("%s: @group(%d) %s is not visible to the %s stage", stage, d.Group, set, stage))
		}
		seen[d.Group] = true
	}
	return seen
}
