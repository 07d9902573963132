// Package model defines the plain value objects shared by every later
// component: Function, Value, ValueLabel, and API. None of these types carry
// behavior beyond equality, hashing (via their string form), and pretty
// printing; everything downstream treats them as immutable once constructed.
package model
