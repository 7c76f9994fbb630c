package lattice

import (
	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// EnvLattice represents the lattice of abstract environments,
// mapping SSA registers pointwise into the interval lattice.
type EnvLattice struct {
	lattice
}

// envLattice is a singleton instantiation of the environment lattice.
var envLattice = &EnvLattice{}

// Env yields the environment lattice.
func (latticeFactory) Env() *EnvLattice {
	return envLattice
}

// Top yields the environment that constrains no register.
func (*EnvLattice) Top() Element {
	return elFact.Env()
}

// Bot yields the unreachable environment.
func (*EnvLattice) Bot() Element {
	return Env{
		bot: true,
		mp:  immutable.NewMap[ssa.Value, Interval](envHasher),
	}
}

func (*EnvLattice) String() string {
	return "(" + colorize.Lattice("Reg") + " ↦ " + intervalLattice.String() + ")"
}

// Eq checks for equality with another lattice.
func (l1 *EnvLattice) Eq(l2 Lattice) bool {
	_, ok := l2.(*EnvLattice)
	return ok
}

// Env safely converts the environment lattice to EnvLattice.
func (l1 *EnvLattice) Env() *EnvLattice {
	return l1
}
