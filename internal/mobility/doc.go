// Package mobility builds ride-duration features from trip start times and
// weather conditions.
package mobility
