// Package notebook reads and writes Jupyter notebooks in the nbformat v4
// interchange format.
//
// Multiline strings (cell sources, stream text, text mime bundles) are held
// joined in memory and split into line lists on write, the way nbformat does.
// Keys the model does not know about are carried through verbatim, so a
// notebook that is read and written back differs only where it was edited.
package notebook
