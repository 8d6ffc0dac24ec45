/*
Package otarabic provides the shaping engine for Arabic, Syriac and Mongolian.

The engine runs the cursive joining state machine over the characters of a
run and selects one of the positional form features (isol, fina, fin2,
fin3, medi, med2, init) per character. Features are applied in stages
with pauses between them. Fonts without positional forms get them
emulated from the Arabic presentation form glyphs they carry, including
lam-alef ligatures for rlig.

Glyphs decomposed by the stch feature are tiled over the width of the
preceding word after positioning.

Register the engine with a registry before compiling plans:

	otarabic.Register(otshape.DefaultRegistry)
*/
package otarabic
