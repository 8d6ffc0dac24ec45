/*
Package othebrew provides the Hebrew script shaping engine for package otshape.

It contributes Hebrew presentation-form composition and mark reordering
through otshape's hook interfaces. Register it with a registry before
compiling plans:

	othebrew.Register(otshape.DefaultRegistry)
*/
package othebrew
