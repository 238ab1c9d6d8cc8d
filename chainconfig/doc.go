/*
Package chainconfig builds the filter registry and the filter chains from
the configuration sections.

The filters section declares objects by name, and it is merged with the
default filters of the chain manager and the default objects of the
embedding application:

	defaults of the chain manager
	    overlaid by the application defaults
	        overlaid by the objects of the filters section

The merged filters are registered in the chain manager. When a serving
context is configured, the filters are initialized during the
registration, and the returned registry is already activated. Otherwise
the registry stays assembled, and it can be activated later:

	f := &chainconfig.Factory{Builder: objects.NewBuilder(builtin.Kinds())}
	r, err := f.Build(manager, filtersSection, urlsSection)
	if err != nil {
		return err
	}

	if err := r.Activate(sc); err != nil {
		return err
	}

The urls section maps path patterns to chain definitions. The
definitions are not interpreted by this package, they are passed to the
chain manager as they are, in the order of the section.

The filters section is deprecated in favor of the main section, and
using it logs a warning once per factory.
*/
package chainconfig
