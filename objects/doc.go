/*
Package objects implements a small object builder for the configuration
sections declaring named objects.

Every key of a section either declares an object, or sets a property of
an object:

	authc = authcBasic
	authc.htpasswd = /etc/pathguard/htpasswd
	authc.realm = internal
	admin = $authc

A key without a dot declares an object. The value is the name of a
registered kind, and the object is created by the constructor of the
kind. When the value is a reference, starting with $, the name is bound
to the referenced object instead.

A key of the form name.property sets a property of an object declared
earlier in the section, or of an object of the construction context.
The object needs to implement PropertySetter. Values starting with $ are
resolved as references, and a leading \$ escapes the dollar sign.

The declarations are processed in the order of the section. Only the
objects declared in the section are returned by the builder.
*/
package objects
