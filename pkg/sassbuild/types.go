package sassbuild

import "github.com/bianoble/sassbuild/internal/engine"

// Type aliases re-export engine result types as the public API.

type FileAction = engine.FileAction
type SourceError = engine.SourceError
type ConfigError = engine.ConfigError
type RunFailure = engine.RunFailure
type RunOutcome = engine.RunOutcome
type CheckResult = engine.CheckResult
type PruneResult = engine.PruneResult
