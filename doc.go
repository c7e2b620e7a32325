// Package jrblog provides an HTML rendering framework built on top of the
// html/template package, and is the foundation the blog theme in the theme
// package is built on.
//
// jrblog is organized around Components and Pages. A Component is some piece
// of the HTML document that you want included in the page's output. A Page is
// a Component that gets rendered itself rather than being included in another
// Component. A single post view is probably a Page; the sidebar is probably a
// Component, as is the base layout that all pages have in common.
//
// jrblog also has the concept of a Site. Each server should have a Site, which
// acts as a singleton for the server and provides the fs.FS containing the
// templates that Components are using. A Site will also be available at render
// time, as .Site, so it can hold configuration data used across all pages.
//
// To render a page, pass it to the Render function. The page itself will be
// made available as .Page within the template, and the Site will be available
// as .Site.
//
// Components declare the stylesheets and scripts they need by implementing
// AssetDeclarer. Assets name each other as dependencies by handle; every
// asset on the page is ordered so its dependencies come first, and made
// available as .CSS, .HeaderJS and .FooterJS.
//
// Filter is a named chain of handlers, run in priority order, that lets
// callers change values such as the document title or body classes without
// replacing the code that produces them.
package jrblog
