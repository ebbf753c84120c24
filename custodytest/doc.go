/*
Package custodytest provides helpers shared by tests of all custody
packages: random keys and conditions, mock authenticators and asset type
markers.
*/
package custodytest
