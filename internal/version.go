package util

// Version is the crev toolchain version string, set at release time.
const Version = "0.1.0"
