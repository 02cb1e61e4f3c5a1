package types

// Version is the canonical Foundry version.
// The CLI, persisted snapshot records, and published adapter events all
// carry this version under the lockstep versioning policy.
const Version = "0.3.0"
