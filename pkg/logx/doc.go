// Package logx configures pushpal's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - Optional file output JSON-structured
//   - A zero-value / Nop() logger that is safe in tests
package logx
