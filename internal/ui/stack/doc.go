// Package stack reconciles the live set of screen controllers against the
// server's latest UI stack snapshot.
//
// Each Tick is a pure diff-and-apply: controllers whose keys left the
// snapshot are destroyed, missing keys are constructed through the factory,
// survivors are reordered and reparented to match, and focus follows the top
// of the stack. The only state carried between ticks besides the live
// entries is the key that last held focus.
package stack
