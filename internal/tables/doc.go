// Package tables contains the IEEE 802.11ax lookup tables that drive the
// layout of an HE compressed beamforming report.
//
// This includes the phi/psi quantization widths, the order in which
// angles appear for each Nr x Nc steering matrix, and the number of
// reported subcarriers per grouping and bandwidth.
//
// Tables are immutable; lookups return ok=false for combinations the
// standard leaves undefined instead of an error, so callers can attach
// their own context.
package tables
