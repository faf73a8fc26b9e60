// Package factory is a small generic registry used to build pluggable
// modules (metrics recorders, link monitors) from configuration. A module is
// described by a type name and a map of raw settings; the registered factory
// decodes the settings and returns the implementation.
//
//	reg := factory.NewRegistry[link.Monitor]()
//	_ = reg.Register("static", func(conf map[string]any) (link.Monitor, error) {
//	    var c struct{ Up bool `json:"up"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return link.Func(func() bool { return c.Up }), nil
//	})
package factory
