package types

// Version is the canonical project version.
// The CLI, the chunk frame format and published events share this version.
const Version = "0.3.0"

// FrameVersion is the chunk frame format version written into document frames.
// It moves in lockstep with Version.
const FrameVersion = Version
