// Package nasc is a dependency injection resolution engine for Go.
//
// Nasc (Old Irish: "Link" or "Bond") resolves object graphs lazily from
// declarative descriptors. A descriptor says whether a type is a singleton
// or built on demand, which named values it provides to its subtree, which
// descriptors to substitute for particular dependencies, and optionally a
// custom factory and a guard.
//
// # Quick Start
//
// Declare types in a registry and resolve them with an injector:
//
//	reg := registry.New()
//	_ = reg.Register(NewDatabase, nasc.Descriptor{})
//	_ = reg.Register(NewUserService, nasc.Descriptor{Mode: nasc.ModeOnDemand})
//
//	injector := nasc.New(reg)
//	svc, err := nasc.Make[*UserService](injector, nasc.Descriptor{})
//
// # Modes
//
// Singleton - one cached instance per type and injector (the default):
//
//	nasc.Descriptor{Mode: nasc.ModeSingleton}
//
// On-demand - a fresh instance every resolution:
//
//	nasc.Descriptor{Mode: nasc.ModeOnDemand}
//
// # Descriptor Merge
//
// Every resolution merges the type's declared descriptor with an override
// (see Merge). Override imports are searched first, override provides win
// on key collision, and an override factory or guard replaces the declared
// one. Provides flow to every dependency; imports apply only to the
// dependency type they name.
//
//	injector.Instantiate(nasc.TypeOf[*Foo](), nasc.Descriptor{
//	    Imports: []nasc.Import{
//	        nasc.ImportOf[*Bar](nasc.Descriptor{Provides: nasc.Provides{"some": "123"}}),
//	    },
//	})
//
// # Guards and Factories
//
// A guard decides whether a cached singleton may be reused and whether a
// new instance may be built. A veto yields a nil instance and never
// rebuilds a cached singleton. A factory replaces the constructor and may
// return nil to signal that no instance is available. Neither outcome is
// an error.
//
// # Method Calls
//
// Methods marked in the registry can be called through CallMethod, which
// resolves their arguments like constructor arguments and runs method
// guards. Direct calls go through the method's direct-call chain, where
// each handler wraps the ones attached before it.
//
// # Errors
//
// Resolving an unmarked type returns a NotInjectableError; calling an
// unmarked method returns a MissingInterceptionError:
//
//	if errors.Is(err, nasc.ErrNotInjectable) { ... }
//
// # Observability
//
// Resolution events can be logged with zap (WithLogger) and counted with
// Prometheus (WithMetrics). WithTracerProvider adds one OpenTelemetry span
// per resolution, nested along the dependency chain.
//
// # Concurrency
//
// Resolution is synchronous. An Injector must not be used for concurrent
// resolutions; create one injector per goroutine or serialize access.
// Injectors are fully isolated from each other.
package nasc
