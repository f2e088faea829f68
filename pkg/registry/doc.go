/*
Package registry implements the container and module registry: the part
of the runtime that answers "given a pool id, a container id and a method
id, which Go function runs?"

A Module is a method table keyed by MethodId. Ids 0..9 are reserved for
the lifecycle/monitor operations every module inherits (Create, Destroy,
Monitor); ids >= 10 are module-specific. A Pool is a named set of
Containers that all share one Module; a Container is one instance of that
module's state.

Three built-in modules, built by pkg/admin ("admin"), pkg/cte ("cte") and
pkg/cae ("cae"), are registered by cmd/ctrt at startup. There is no
built-in bdev module. Everything else is an application module registered
by the embedder.
*/
package registry
