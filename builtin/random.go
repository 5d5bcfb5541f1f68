package builtin

import (
	"math/rand"
	"sync"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// rng is shared process-wide so set_seed(n) followed by random(...) is
// reproducible regardless of which scope called either one.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(1))
)

func randomBuiltins() []entry {
	return []entry{
		// random() -> decimal in [0,1); random(a) -> int in [0,a);
		// random(a,b) -> int in [a,b).
		{Name: "random", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			rngMu.Lock()
			defer rngMu.Unlock()
			switch len(args) {
			case 0:
				return value.NewDecimal(rng.Float64()), nil
			case 1:
				a, rerr := value.AsInt(args[0], pos)
				if rerr != nil {
					return nil, rerr
				}
				if a <= 0 {
					return nil, value.NewError(pos, "ERROR", "random: a must be positive")
				}
				return value.NewInt(rng.Int63n(a)), nil
			default:
				a, rerr := value.AsInt(args[0], pos)
				if rerr != nil {
					return nil, rerr
				}
				b, rerr := value.AsInt(args[1], pos)
				if rerr != nil {
					return nil, rerr
				}
				if b <= a {
					return nil, value.NewError(pos, "ERROR", "random: b must be greater than a")
				}
				return value.NewInt(a + rng.Int63n(b-a)), nil
			}
		}},
		{Name: "set_seed", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := value.AsInt(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			rngMu.Lock()
			rng = rand.New(rand.NewSource(n))
			rngMu.Unlock()
			return value.NewInt(n), nil
		}},
	}
}
