// Package pipeline composes the development server's request-handling chain.
//
// # Phases
//
// Builder.Build mounts, in this order:
//
//  1. The custom server module, if one exists under the server module root.
//     A module is an explicit tagged variant: DirectHandler modules are a
//     (w, r, next) HandlerFunc mounted into the chain, Factory modules are
//     invoked with the App and settings and mount whatever they need.
//  2. Addon middleware. Every addon implementing MiddlewareHook is invoked in
//     collection order, one at a time. The first failure aborts the build.
//
// # Request order
//
// The App runs middleware in mount order, like an Express stack: the first
// mounted middleware sees the request first and decides whether to call
// next. Routes registered with App.Handle sit at the end of the chain.
//
// A new App is built for every server start. Nothing holds on to an App
// across restarts.
package pipeline
