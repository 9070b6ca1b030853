// Package gaming turns a video game sales catalogue into a hit/non-hit
// classification dataset.
package gaming
