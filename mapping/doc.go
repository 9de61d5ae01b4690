/*
Package mapping implements the classification table that turns OSM tags into
semantic type codes.

A Mapping is loaded from a YAML file. Each entry names a type, the tags that
select it and the geometry kinds (point, line, area) it is drawable as. Type
names are hierarchical, separated by '-'; parents of every configured name
are registered implicitly so that types can be truncated to a level (used
for the administrative boundary suppression of inner relation members).

Classify returns a Value with all matching types. RemoveNoDrawable and
IsDrawableLike answer which of those types can be drawn as a given geometry.
*/
package mapping
