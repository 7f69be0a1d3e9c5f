// Package coupling advances a particle population alongside a gas-phase
// reactor by explicit operator splitting.
//
// Each coupled step first lets the reactor advance to the next clock time,
// then evaluates the particle kinetics at the reactor's new state:
//
//	state := reactor.Advance(ctx, clock.Next())
//	rate  := kinetics.InceptionRate(P, T, precursor)
//	N     := N_prev + rate*CarbonsPerInception/CarbonsPerParticle*dt
//	FV    := kinetics.VolumeFraction(N)
//	res   := kinetics.GasScrub(N, reactor precursor, P, T)
//
// With the default [PolicyLagged] the precursor fed to the inception rate is
// the residual of the previous step, so the first step never forms
// particles. The reactor is not told about the scrubbed precursor unless a
// [Feedback] hook is installed; the reactor then holds the depletion of
// earlier steps and only the particles formed in the current step are
// scrubbed.
//
// A [Stepper] is single-writer: drive it from one goroutine.
package coupling
