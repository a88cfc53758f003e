/*
Package sqldataset provides a dataset.Table source and sink that uses an SQL
database as backend.

The backend uses 2 database tables:
  * One for storing nominal values
  * One for the data objects (rows)

Rows are stored on the objects table, with their nominal values as references to
values in the nominal value table. Missing values are stored as NULL.
*/
package sqldataset
